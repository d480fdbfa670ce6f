// Package compiler turns DDL schema source into a relocatable definition
// blob.
//
// Pipeline: source → Preprocess → Tokenize → Parser → ddl.Definition
//
// The parser writes records straight into an area.Manager, so the blob is
// complete, position independent and readable with package ddl as soon as
// Compile returns.
package compiler
