// Package flatkey canonicalizes flat identifiers so spreadsheet rows and bill
// filenames can be compared with plain string equality.
//
// Residents' flats arrive in many spellings ("A-101", "a 101", "Row House 12",
// "RowHouse-12"). Normalize folds them into a Key; both the roster loader and
// the matcher go through this package so the two sides of the join always use
// identical rules.
package flatkey
