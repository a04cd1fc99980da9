package main

import (
	"bytes"
	"io"
	"strings"
	"testing"

	"github.com/pkg/errors"
	"github.com/smartystreets/goconvey/convey"

	tf "github.com/echoface/trail_filter"
)

const fixturePath = "testdata/trails.yaml"

func runCmd(args ...string) ([]string, error) {
	out := &bytes.Buffer{}
	root := newRootCmd()
	root.SetArgs(args)
	root.SetOut(out)
	root.SetErr(io.Discard)
	err := root.Execute()
	return strings.Split(strings.TrimSpace(out.String()), "\n"), err
}

func TestFixture(t *testing.T) {
	convey.Convey("load and build", t, func() {
		fixture, err := LoadFixture(fixturePath)
		convey.So(err, convey.ShouldBeNil)
		convey.So(fixture.Fields, convey.ShouldResemble, []string{"f1", "f2"})

		store, err := fixture.BuildStore()
		convey.So(err, convey.ShouldBeNil)
		convey.So(store.NumTrails(), convey.ShouldEqual, uint64(2))
		convey.So(store.NumEvents(), convey.ShouldEqual, uint64(13))

		trail, ok := store.TrailID(ParseCookie("visitor-2"))
		convey.So(ok, convey.ShouldBeTrue)
		convey.So(trail, convey.ShouldEqual, tf.TrailID(1))

		expr, err := fixture.Expression()
		convey.So(err, convey.ShouldBeNil)
		convey.So(expr, convey.ShouldResemble, tf.And(tf.Or(tf.Equal("f2", "x0"))))
	})

	convey.Convey("missing fixture", t, func() {
		_, err := LoadFixture("testdata/absent.yaml")
		convey.So(err, convey.ShouldNotBeNil)
	})
}

func TestScanCommand(t *testing.T) {
	convey.Convey("fixture filter, edge encoded", t, func() {
		lines, err := runCmd("scan", "--data", fixturePath, "--cookie", "aaaaaaaa-aaaa-aaaa-aaaa-aaaaaaaaaaaa")
		convey.So(err, convey.ShouldBeNil)
		convey.So(len(lines), convey.ShouldEqual, 6)
		convey.So(lines[0], convey.ShouldEqual,
			`{"cookie":"aaaaaaaa-aaaa-aaaa-aaaa-aaaaaaaaaaaa","ts":123,"values":{"f1":"a","f2":"x0"}}`)
		convey.So(lines[2], convey.ShouldEqual,
			`{"cookie":"aaaaaaaa-aaaa-aaaa-aaaa-aaaaaaaaaaaa","ts":126,"values":{}}`)
		convey.So(lines[3], convey.ShouldEqual,
			`{"cookie":"aaaaaaaa-aaaa-aaaa-aaaa-aaaaaaaaaaaa","ts":128,"values":{"f1":"b","f2":"x0"}}`)
	})

	convey.Convey("flag filter, resolved", t, func() {
		lines, err := runCmd("scan", "--data", fixturePath, "--cookie", "visitor-2", "--resolved",
			"--filter", `[[{"field":"f2","op":"notequal","value":"x0"}]]`)
		convey.So(err, convey.ShouldBeNil)
		cookie := ParseCookie("visitor-2").String()
		convey.So(lines, convey.ShouldResemble, []string{
			`{"cookie":"` + cookie + `","ts":100,"values":{"f1":"a","f2":"x1"}}`,
			`{"cookie":"` + cookie + `","ts":200,"values":{"f1":"b","f2":""}}`,
		})
	})

	convey.Convey("invalid input", t, func() {
		_, err := runCmd("scan", "--data", fixturePath, "--filter", `[[]]`)
		convey.So(errors.Is(err, tf.ErrInvalidFilter), convey.ShouldBeTrue)

		_, err = runCmd("scan", "--data", fixturePath, "--resolved", "--merged")
		convey.So(err, convey.ShouldNotBeNil)

		_, err = runCmd("scan", "--data", fixturePath, "--cookie", "nobody")
		convey.So(errors.Is(err, tf.ErrTrailNotFound), convey.ShouldBeTrue)
	})
}

func TestMatchCommand(t *testing.T) {
	convey.Convey("matched trails and events", t, func() {
		lines, err := runCmd("match", "--data", fixturePath)
		convey.So(err, convey.ShouldBeNil)
		convey.So(lines, convey.ShouldResemble, []string{`{"trails":[0],"events":6}`})

		lines, err = runCmd("match", "--data", fixturePath, "--filter", `[[{"field":"f1","value":"a"}]]`)
		convey.So(err, convey.ShouldBeNil)
		convey.So(lines, convey.ShouldResemble, []string{`{"trails":[0,1],"events":6}`})
	})
}
