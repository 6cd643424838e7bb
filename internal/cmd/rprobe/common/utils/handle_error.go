package utils

import (
	"fmt"
	"syscall"
)

// ProbeFailed is the only non-zero exit code the probes use: any
// validation failure or unmet probe condition exits 1.
const ProbeFailed = 1

func HandleError(err error) {
	if err != nil {
		fmt.Println(err)
		syscall.Exit(ProbeFailed)
	}
}
