// Package core defines the shared language of the drugtree system.
//
// This package contains:
//   - Registry records (Drug, GroupMembership, Dataset)
//   - The composed view (Row, View, Page)
//   - Hierarchy levels and selections (Level, Selection)
//   - The data source contract (Adapter, AdapterConfig, DialectConfig)
//
// The Golden Rule: pkg/core imports ONLY stdlib.
// All other packages depend on core, not the reverse.
package core
