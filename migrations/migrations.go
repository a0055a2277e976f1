package migrations

import "embed"

// FS отдается goose при старте приложения
//
//go:embed *.sql
var FS embed.FS
