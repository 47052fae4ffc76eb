// Package all wires all built-in storage backends into the storage factory.
//
// This package exists purely for side effects: importing it (even as a blank
// import) runs each backend's init, which registers its Factory and Dialect
// with the storage package. After the import, storage.New and
// storage.DialectFor accept:
//
//   - "redshift" (dwh/internal/storage/redshift)
//   - "postgres" (dwh/internal/storage/postgres)
//   - "sqlite"   (dwh/internal/storage/sqlite)
//   - "mssql"    (dwh/internal/storage/mssql)
//   - "mysql"    (dwh/internal/storage/mysql)
//
// Binaries that need only a subset can import the backends directly instead.
package all

import (
	_ "dwh/internal/storage/mssql"
	_ "dwh/internal/storage/mysql"
	_ "dwh/internal/storage/postgres"
	_ "dwh/internal/storage/redshift"
	_ "dwh/internal/storage/sqlite"
)
