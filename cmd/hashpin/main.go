// Command hashpin prints the bcrypt hash of a cohort confirmation PIN,
// ready to paste into the pin_hash field of profiles.yaml.
package main

import (
	"bufio"
	"fmt"
	"os"
	"strings"

	"roster/internal/domain/cohort"
)

func main() {
	pin := ""
	if len(os.Args) > 1 {
		pin = os.Args[1]
	} else {
		fmt.Fprint(os.Stderr, "PIN: ")
		line, err := bufio.NewReader(os.Stdin).ReadString('\n')
		if err != nil && line == "" {
			fmt.Fprintf(os.Stderr, "failed to read PIN: %v\n", err)
			os.Exit(1)
		}
		pin = strings.TrimSpace(line)
	}

	hash, err := cohort.HashPIN(pin)
	if err != nil {
		fmt.Fprintf(os.Stderr, "hashpin: %v\n", err)
		os.Exit(1)
	}
	fmt.Println(hash)
}
