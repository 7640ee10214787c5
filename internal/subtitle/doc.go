// Package subtitle defines the timestamped transcript record and its
// append-only on-disk representation.
//
// Records use SRT-style blocks ({index}, "{start} --> {end}", text) with
// HH:MM:SS,mmm timecodes. Writer appends blocks to one session file and
// syncs after every write so an ungraceful kill loses at most the sentence
// in flight.
package subtitle
