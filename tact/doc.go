// Package tact reads the TACT structures layered over a CASC store.
//
// The encoding table maps content keys, which identify logical files, to
// the encoding keys under which their encoded bytes are stored. Content
// manifests list the assets of a product and are stored encrypted with a
// key derived from the build version and the manifest's file name.
//
// Everything in this package is a pure function of its input bytes; nothing
// here touches the filesystem. Parsed values are immutable and safe for
// concurrent use.
package tact
