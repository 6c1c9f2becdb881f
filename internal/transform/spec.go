// Package transform derives concrete transformation parameters from
// validated request input and invokes the adapters that produce artifacts.
//
// Audio and video operations run ffmpeg out of process; image and PDF
// operations run in process. All adapters share the same shape: take staged
// input paths and a parameter value, produce one artifact inside the
// request's workspace, or return a classified error.
package transform

import (
	"math"
)

// Operation identifies the requested transformation.
type Operation string

const (
	OpAudioCompress  Operation = "audio_compress"
	OpAudioMerge     Operation = "audio_merge"
	OpImageConvert   Operation = "image_convert"
	OpImageResize    Operation = "image_resize"
	OpImageWatermark Operation = "image_watermark"
	OpPDFMerge       Operation = "pdf_merge"
	OpVideoTranscode Operation = "video_transcode"
)

// Position anchors watermark text to a corner or the center of the image.
type Position string

const (
	PositionTopLeft     Position = "top-left"
	PositionTopRight    Position = "top-right"
	PositionBottomLeft  Position = "bottom-left"
	PositionBottomRight Position = "bottom-right"
	PositionCenter      Position = "center"
)

// ParsePosition maps request input to a Position, defaulting to bottom-right.
func ParsePosition(s string) Position {
	switch Position(s) {
	case PositionTopLeft, PositionTopRight, PositionBottomLeft, PositionBottomRight, PositionCenter:
		return Position(s)
	default:
		return PositionBottomRight
	}
}

// BitrateKbps maps a quality value in [10,100] to an MP3 bitrate by linear
// interpolation between 32 and 320 kbps, rounded to the nearest whole kbps.
func BitrateKbps(quality int) int {
	return int(math.Round(32 + float64(quality)/100*288))
}

// watermarkMargin is the pixel inset from image edges for corner positions.
const watermarkMargin = 20

// TextOrigin computes the baseline origin for watermark text as a pure
// function of image size, measured text width, and font size. The y value
// anchors the text baseline, following the drawing library's convention.
func TextOrigin(width, height, textWidth int, fontSize float64, pos Position) (x, y int) {
	size := int(fontSize)

	switch pos {
	case PositionTopLeft:
		return watermarkMargin, watermarkMargin + size
	case PositionTopRight:
		return width - textWidth - watermarkMargin, watermarkMargin + size
	case PositionBottomLeft:
		return watermarkMargin, height - watermarkMargin
	case PositionCenter:
		return (width - textWidth) / 2, (height + size) / 2
	default: // bottom-right
		return width - textWidth - watermarkMargin, height - watermarkMargin
	}
}
