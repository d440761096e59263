package assert

import "fmt"

func NotNil(value any, params ...any) {
	if value == nil {
		panic(fmt.Sprint("expected value to be not nil ", params))
	}
}

func NotEmptyStr(str string, params ...any) {
	if str == "" {
		panic(fmt.Sprint("expected string to be non-empty ", params))
	}
}
