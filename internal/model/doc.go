// Package model defines the records, watched parties, terms and match
// decisions shared by the store, the match engine and the notifiers.
package model
