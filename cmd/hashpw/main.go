// Command hashpw prints a bcrypt hash suitable for DASHBOARD_PASSWORD_HASH.
package main

import (
	"bufio"
	"fmt"
	"os"
	"strings"

	"github.com/lorrc/service-desk-insights/internal/core/domain"
)

func main() {
	password := ""
	if len(os.Args) > 1 {
		password = os.Args[1]
	} else {
		fmt.Fprint(os.Stderr, "password: ")
		line, err := bufio.NewReader(os.Stdin).ReadString('\n')
		if err != nil && line == "" {
			fmt.Fprintln(os.Stderr, "read password:", err)
			os.Exit(1)
		}
		password = strings.TrimRight(line, "\r\n")
	}

	hash, err := domain.HashPassword(password)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		for _, problem := range domain.ValidatePassword(password) {
			fmt.Fprintln(os.Stderr, "  -", problem)
		}
		os.Exit(1)
	}

	fmt.Println(hash)
}
