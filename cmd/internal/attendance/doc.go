// Package attendance records which student attended class on which date.
// One row per student per date; marking twice is a conflict, not an
// update. Every mark carries the staff user who recorded it.
package attendance
