package redshift

import (
	"fmt"
	"strings"

	gddl "dwh/internal/ddl"
	"dwh/internal/storage"
)

// BuildCopySQL renders a server-side COPY from S3 for spec. Every value is
// validated and emitted as an escaped string literal.
//
//	COPY staging_songs
//	FROM 's3://udacity-dend/song_data'
//	IAM_ROLE 'arn:aws:iam::123456789012:role/dwhRole'
//	JSON 'auto'
//	REGION 'us-west-2'
//	MAXERROR AS 10;
func BuildCopySQL(spec storage.CopySpec) (string, error) {
	if err := spec.ValidateObjectStore(); err != nil {
		return "", err
	}

	jsonArg := spec.JSONPaths
	if spec.IsAuto() {
		jsonArg = storage.JSONAuto
	}

	lines := []string{
		"COPY " + gddl.QuoteFQN(spec.Table, gddl.DoubleQuote),
		"FROM " + storage.QuoteLiteral(spec.From),
		"IAM_ROLE " + storage.QuoteLiteral(spec.IAMRole),
		"JSON " + storage.QuoteLiteral(jsonArg),
	}
	if spec.Region != "" {
		lines = append(lines, "REGION "+storage.QuoteLiteral(spec.Region))
	}
	if spec.MaxError > 0 {
		lines = append(lines, fmt.Sprintf("MAXERROR AS %d", spec.MaxError))
	}
	return strings.Join(lines, "\n") + ";", nil
}
