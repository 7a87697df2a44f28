package export

import (
	"fmt"
	"slices"
)

// Style is a transition look offered to the user.
type Style string

const (
	StyleNone         Style = "none"
	StyleOGLFlip      Style = "oglFlip"
	StylePageCurl     Style = "pageCurl"
	StylePageUnCurl   Style = "pageUnCurl"
	StyleFade         Style = "fade"
	StyleCube         Style = "cube"
	StyleMoveIn       Style = "moveIn"
	StylePush         Style = "push"
	StyleReveal       Style = "reveal"
	StyleRippleEffect Style = "rippleEffect"
	StyleSuckEffect   Style = "suckEffect"
	StyleCameraIris   Style = "cameraIris"
)

// Direction is the edge the incoming item enters from.
type Direction string

const (
	FromLeft   Direction = "fromLeft"
	FromRight  Direction = "fromRight"
	FromTop    Direction = "fromTop"
	FromBottom Direction = "fromBottom"
)

// Styles lists the selectable styles in menu order.
var Styles = []Style{
	StyleOGLFlip, StylePageCurl, StylePageUnCurl, StyleFade, StyleCube,
	StyleMoveIn, StylePush, StyleReveal, StyleRippleEffect, StyleSuckEffect,
	StyleCameraIris, StyleNone,
}

var Directions = []Direction{FromLeft, FromRight, FromTop, FromBottom}

// Durations lists the selectable transition lengths in seconds.
var Durations = []float64{0, 0.15, 0.25, 0.5, 0.75, 1, 1.5, 2, 3, 4}

const (
	DefaultStyle      = StyleMoveIn
	DefaultDirection  = FromTop
	DefaultTransition = 1.0
)

func ParseStyle(s string) (Style, error) {
	if s == "" {
		return DefaultStyle, nil
	}
	st := Style(s)
	if !slices.Contains(Styles, st) {
		return "", fmt.Errorf("unknown transition style %q", s)
	}
	return st, nil
}

func ParseDirection(s string) (Direction, error) {
	if s == "" {
		return DefaultDirection, nil
	}
	d := Direction(s)
	if !slices.Contains(Directions, d) {
		return "", fmt.Errorf("unknown transition direction %q", s)
	}
	return d, nil
}

// motion is the xfade suffix for content travelling away from the
// entry edge.
func (d Direction) motion() string {
	switch d {
	case FromLeft:
		return "right"
	case FromRight:
		return "left"
	case FromBottom:
		return "up"
	default:
		return "down"
	}
}

// corner picks the diagonal xfade suffix for page curls.
func (d Direction) corner() string {
	switch d {
	case FromLeft:
		return "tl"
	case FromRight:
		return "br"
	case FromBottom:
		return "bl"
	default:
		return "tr"
	}
}

func (d Direction) horizontal() bool {
	return d == FromLeft || d == FromRight
}

// XFadeName maps a style and direction onto an ffmpeg xfade transition.
// StyleNone has no xfade equivalent and returns "".
func XFadeName(style Style, dir Direction) string {
	switch style {
	case StyleNone:
		return ""
	case StyleFade:
		return "fade"
	case StylePush:
		return "slide" + dir.motion()
	case StyleMoveIn:
		return "smooth" + dir.motion()
	case StyleReveal:
		return "wipe" + dir.motion()
	case StylePageCurl:
		return "diag" + dir.corner()
	case StylePageUnCurl:
		return "wipe" + dir.corner()
	case StyleOGLFlip:
		if dir.horizontal() {
			return "squeezeh"
		}
		return "squeezev"
	case StyleCube:
		switch dir {
		case FromLeft:
			return "hrslice"
		case FromRight:
			return "hlslice"
		case FromBottom:
			return "vuslice"
		default:
			return "vdslice"
		}
	case StyleRippleEffect:
		return "radial"
	case StyleSuckEffect:
		return "zoomin"
	case StyleCameraIris:
		return "circleopen"
	default:
		return "fade"
	}
}
