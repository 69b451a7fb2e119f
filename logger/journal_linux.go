// SPDX-License-Identifier: GPL-3.0-or-later

//go:build linux

package logger

import (
	"os"

	"github.com/coreos/go-systemd/v22/journal"
)

func isStderrConnectedToJournal() bool {
	// systemd sets JOURNAL_STREAM for services whose stderr goes to the journal
	if os.Getenv("JOURNAL_STREAM") == "" {
		return false
	}
	ok, err := journal.StderrIsJournalStream()
	return ok && err == nil
}
