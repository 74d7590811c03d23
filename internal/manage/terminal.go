// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package manage

import (
	"os"

	"golang.org/x/term"
)

func isTerminal(file *os.File) bool {
	return term.IsTerminal(int(file.Fd()))
}

func readTerminalPassword(file *os.File) (string, error) {
	secret, err := term.ReadPassword(int(file.Fd()))
	if err != nil {
		return "", err
	}
	return string(secret), nil
}
