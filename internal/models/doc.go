// Package models provides the shared value types for hpp.
//
// This package contains type definitions only. All other internal packages
// import models; models imports nothing internal. The error taxonomy lives
// here so that the loader, the tokenizer and the engine report failures with
// the same codes without importing each other.
package models
