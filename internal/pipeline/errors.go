package pipeline

import (
	"context"
	"errors"

	"github.com/backmassage/pngtone/internal/archive"
	"github.com/backmassage/pngtone/internal/codec"
	"github.com/backmassage/pngtone/internal/filter"
)

// ErrDiscovery wraps failures to enumerate the expanded directory. Fatal.
var ErrDiscovery = errors.New("asset discovery failed")

// Stage names the step a job was in when it failed.
type Stage string

const (
	StageProbe     Stage = "probe"
	StageDecode    Stage = "decode"
	StageTransform Stage = "transform"
	StageEncode    Stage = "encode"
)

// Classify maps err to the name used in failure reports. Cancellation and
// timeouts are reported as such even when they surfaced inside a decode or
// encode. Returns "" for nil.
func Classify(err error) string {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, context.DeadlineExceeded):
		return "Timeout"
	case errors.Is(err, context.Canceled):
		return "Canceled"
	case errors.Is(err, filter.ErrUnsupportedFilter):
		return "UnsupportedFilterError"
	case errors.Is(err, archive.ErrExpansion):
		return "ExpansionError"
	case errors.Is(err, ErrDiscovery):
		return "DiscoveryError"
	case errors.Is(err, codec.ErrDecode):
		return "DecodeError"
	case errors.Is(err, codec.ErrEncode):
		return "EncodeError"
	default:
		return "Error"
	}
}
