package util

import jsoniter "github.com/json-iterator/go"

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// JSONString encoding failures render as an empty string
func JSONString(v interface{}) string {
	data, _ := json.Marshal(v)
	return string(data)
}

func JSONPretty(v interface{}) string {
	data, _ := json.MarshalIndent(v, "", " ")
	return string(data)
}
