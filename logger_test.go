package trail_filter

import (
	"bytes"
	"log/slog"
	"testing"

	"github.com/smartystreets/goconvey/convey"
)

func TestSlogLogger(t *testing.T) {
	convey.Convey("forward to slog with the component attribute", t, func() {
		buf := &bytes.Buffer{}
		handler := slog.NewTextHandler(buf, &slog.HandlerOptions{Level: slog.LevelInfo})

		prev := Logger
		defer func() { Logger = prev }()
		Logger = NewSlogLogger(slog.New(handler))

		LogDebug("hidden %d", 1)
		LogDebugIf(true, "hidden too")
		LogDebugIf(false, "never")
		LogInfo("trail %d scanned", 7)
		LogIfErr(ErrCorruptTrail, "scan failed")

		out := buf.String()
		convey.So(out, convey.ShouldNotContainSubstring, "hidden")
		convey.So(out, convey.ShouldContainSubstring, `msg="trail 7 scanned" component=trail_filter`)
		convey.So(out, convey.ShouldContainSubstring, "level=ERROR")
		convey.So(out, convey.ShouldContainSubstring, "corrupt trail")
	})

	convey.Convey("nil logger discards", t, func() {
		convey.So(func() { NewSlogLogger(nil).Errorf("dropped") }, convey.ShouldNotPanic)
	})
}
