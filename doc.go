// Package zoog rewrites the header packets of Ogg Opus and Ogg Vorbis
// streams without touching the encoded audio payload.
//
// It backs two command-line tools: opuscomment, which lists and edits the
// comment (tag) list, and opusgain, which measures BS.1770 loudness and
// rewrites the Opus output-gain field and R128_TRACK_GAIN/R128_ALBUM_GAIN
// tags to hit a target loudness.
//
// # Architecture
//
// Both tools share the header rewrite driver in internal/rewriter: a
// packet-granular state machine that parses the identification and comment
// headers of a logical Ogg stream, hands them to a pluggable rewrite
// callback, and re-serializes them, forwarding every other packet
// untouched. Ogg page/packet framing lives in internal/oggstream; the
// Opus and Vorbis header byte layouts live in internal/opusheader and
// internal/vorbisheader, which share the comment-header core in
// internal/header.
//
// # Error Handling
//
// The header codecs, Ogg framing, rewrite driver, loudness analyzer and
// output-file strategy return errors as *Error values carrying a Kind (IO,
// Format, Semantics, or Control) so callers can distinguish a malformed
// file from an interrupted run without string matching.
package zoog
