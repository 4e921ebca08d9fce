// Copyright (c) 2025 Latchkey Authors
// Latchkey - typestate password vault
// This source code is licensed under the MIT license found in the LICENSE file.

// package db provides the data access layer for Latchkey. It abstracts the
// underlying database (SQLite, PostgreSQL, MySQL) behind a consistent Store
// interface so the rest of the application never sees driver details. Only
// sealed vault records and the audit log are persisted; plaintext secrets
// never reach this package.
package db
