package util

import (
	"testing"

	"github.com/smartystreets/goconvey/convey"
)

func TestJSONString(t *testing.T) {
	convey.Convey("compact form", t, func() {
		convey.So(JSONString(nil), convey.ShouldEqual, "null")
		convey.So(JSONString(map[string]string{"b": "2", "a": "1"}), convey.ShouldEqual, `{"a":"1","b":"2"}`)
		convey.So(JSONString(make(chan int)), convey.ShouldEqual, "")
	})

	convey.Convey("pretty form", t, func() {
		convey.So(JSONPretty(struct{}{}), convey.ShouldEqual, "{}")
		convey.So(JSONPretty([]int{1}), convey.ShouldEqual, "[\n 1\n]")
	})
}
