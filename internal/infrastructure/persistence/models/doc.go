// Package models contains GORM persistence models and their mappings to
// domain entities. Models stay in this package; domain packages never see
// gorm tags or database column names.
package models
