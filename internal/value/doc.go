// Package value provides the typed cell model shared by every pipeline stage.
//
// This package contains the closed set of Value variants, the ColumnType
// schema descriptors, and the Row type. It imports nothing internal except
// errs, so it remains the foundational layer of the module.
//
// Key design constraints:
//   - Value is sealed; every dispatch site is an exhaustive type switch
//   - Values of different variants are never equal and never ordered
//   - Text is NFC normalized at construction boundaries (Parse, Infer)
package value
