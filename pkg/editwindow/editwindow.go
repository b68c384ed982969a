// Package editwindow decides whether a clinical record may still be changed.
package editwindow

import "time"

// Window is how long after creation a record stays editable.
const Window = 24 * time.Hour

// IsEditable reports whether a record created at createdAt may be edited at
// now. Records without a creation time are always editable.
func IsEditable(createdAt *time.Time, now time.Time) bool {
	if createdAt == nil {
		return true
	}
	return now.Sub(*createdAt) < Window
}
