package common

import "os"

func PanicIfErr(err error) {
	if err != nil {
		panic(err)
	}
}

// Remove deletes file if it exists. It is mostly useful for cleaning up after tests.
func Remove(file string) {
	if err := os.Remove(file); err != nil && !os.IsNotExist(err) {
		panic(err)
	}
}
