// Package abi holds the Go mirrors of the native structs that cross the
// engine boundary, and the tools that check their memory layout.
//
// Every mirror lists its fields in header order with types of the same width
// as the C declaration; pointer-sized members use uintptr. Fixed arrays use
// package inline, tagged unions keep their payload as raw storage read
// through nativeref.ArmOf.
//
// The native header layout of each struct is also described independently in
// nativeLayouts (computed with C alignment rules for the current pointer
// size). Verify compares the two, and the atomabi command prints both.
package abi
