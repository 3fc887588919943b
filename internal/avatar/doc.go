// Package avatar fetches originator avatars over HTTP and turns them into
// fixed-size, circularly masked bitmaps for the overlay.
package avatar
