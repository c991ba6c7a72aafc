// Package hcl loads formula batches from HCL files.
//
// A batch file declares formulas and, optionally, inline records:
//
//	formula "sumResult" {
//	  expression = "fieldA + fieldB"
//	  input "fieldA" { type = number }
//	  input "fieldB" { type = number }
//	}
//
//	record {
//	  id     = 1
//	  fieldA = 10
//	  fieldB = 2
//	}
//
// The formula label is its output variable. Input types are bare keywords:
// number, currency, percentage or text. Record attributes must be literal
// numbers, strings or null.
package hcl
