// Package roster loads the resident roster: which flat each row describes and
// the address its bill should go to.
//
// Rosters are spreadsheets exported by the society office, either .xlsx
// workbooks or .csv files. Only two columns matter (flat identifier and email,
// named by Options); other columns are ignored. Identifiers are normalized with
// package flatkey on load, and row order is preserved because it drives send
// order downstream.
package roster
