// Package display provides user-facing terminal output helpers: progress
// indicators for multi-document runs and formatted warning boxes.
package display
