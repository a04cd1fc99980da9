package util

import "fmt"

// PanicIf panic with the formatted message when cond holds, meant for
// broken invariants, never for bad input
func PanicIf(cond bool, format string, v ...interface{}) {
	if !cond {
		return
	}
	panic(fmt.Errorf(format, v...))
}

// PanicIfErr panic when err is not nil, the message is prefixed by err
func PanicIfErr(err error, format string, v ...interface{}) {
	if err == nil {
		return
	}
	panic(fmt.Errorf("err:%v, "+format, append([]interface{}{err}, v...)...))
}
