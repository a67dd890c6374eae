// Package payroll owns payroll periods, their revision lifecycle, and the
// per-revision confirmations employees record against them.
package payroll

import (
	"fmt"
	"strconv"
	"strings"

	"shiftledger/pkg/platform/sentinel"
)

const revisionSeparator = "__rev"

// ConfirmationKey composes the document key a confirmation is stored under.
// The revision is part of the key, so a re-finalized period gets fresh keys
// while the old ones stay on disk.
func ConfirmationKey(employeeID string, revision int) string {
	return employeeID + revisionSeparator + strconv.Itoa(revision)
}

// ParseConfirmationKey splits a document key back into its employee and
// revision parts. Employee ids may themselves contain "__rev"; the split
// happens at the last occurrence.
func ParseConfirmationKey(key string) (employeeID string, revision int, err error) {
	idx := strings.LastIndex(key, revisionSeparator)
	if idx <= 0 {
		return "", 0, fmt.Errorf("confirmation key %q: %w", key, sentinel.ErrInvalidState)
	}
	revision, err = strconv.Atoi(key[idx+len(revisionSeparator):])
	if err != nil || revision < 1 {
		return "", 0, fmt.Errorf("confirmation key %q: bad revision: %w", key, sentinel.ErrInvalidState)
	}
	return key[:idx], revision, nil
}
