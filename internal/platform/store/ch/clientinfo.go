package ch

import (
	"os"
	"runtime"
	"strings"

	"postlens/internal/core/version"

	"github.com/ClickHouse/clickhouse-go/v2"
)

// BuildClientInfo tags queries in system.query_log with the binary, its role
// ("api", "analyzer", "cli") and the build that issued them
func BuildClientInfo(role, tag string) clickhouse.ClientInfo {
	bi := version.Info()
	host, _ := os.Hostname()

	info := clickhouse.ClientInfo{}
	for _, p := range [][2]string{
		{"postlens", orUnknown(tag)},
		{"role", orUnknown(role)},
		{"go", runtime.Version()},
		{"build", orUnknown(bi.Version + "+" + bi.Commit)},
		{"host", orUnknown(host)},
	} {
		info.Products = append(info.Products, struct {
			Name    string
			Version string
		}{p[0], p[1]})
	}
	return info
}

func orUnknown(s string) string {
	if s = strings.TrimSpace(s); s == "" {
		return "unknown"
	}
	return s
}
