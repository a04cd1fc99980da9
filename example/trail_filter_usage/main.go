package main

import (
	"fmt"

	"github.com/google/uuid"

	tf "github.com/echoface/trail_filter"
	"github.com/echoface/trail_filter/memstore"
	"github.com/echoface/trail_filter/util"
)

func buildStore() *memstore.Store {
	cons, err := memstore.NewConstructor("browser", "page", "action")
	util.PanicIfErr(err, "bad fields")

	visitor := uuid.MustParse("12345678-1234-1234-1234-123456789abc")
	events := [][]string{
		{"firefox", "/home", "view"},
		{"firefox", "/cart", "view"},
		{"firefox", "/cart", "buy"},
		{"chrome", "/home", "view"},
	}
	for i, values := range events {
		util.PanicIfErr(cons.Add(visitor, uint64(1000+i), values), "event %d", i)
	}
	store, err := cons.Finalize()
	util.PanicIfErr(err, "finalize store")
	return store
}

func main() {
	tf.LogLevel = tf.DebugLevel

	store := buildStore()
	session, err := tf.NewSession(store)
	util.PanicIfErr(err, "open session")

	// (page == /cart) AND (action != view OR browser == chrome)
	err = session.SetFilter(tf.And(
		tf.Or(tf.Equal("page", "/cart")),
		tf.Or(tf.NotEqual("action", "view"), tf.Equal("browser", "chrome")),
	))
	util.PanicIfErr(err, "set filter")
	fmt.Println("filter:", session.Filter())
	fmt.Println(util.JSONPretty(tf.ExpressionToAny(session.Filter())))

	cursor, err := session.Iterate(0, tf.WithResolvedItems())
	util.PanicIfErr(err, "open trail")
	for cursor.Next() {
		values, err := session.Values(cursor.Event())
		util.PanicIfErr(err, "render event")
		fmt.Println(cursor.Event().Timestamp, util.JSONString(values))
	}
	util.PanicIfErr(cursor.Err(), "scan trail")

	// filters travel as json
	expr, err := tf.ParseExpressionJSON([]byte(`[[{"field":"browser","value":"safari"}]]`))
	util.PanicIfErr(err, "parse filter")
	collector, err := session.MatchTrails(tf.WithFilter(expr))
	util.PanicIfErr(err, "match trails")
	fmt.Println("safari trails:", collector.GetTrailIDs())
}
