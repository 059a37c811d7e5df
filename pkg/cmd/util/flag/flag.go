package flag

import (
	"github.com/pkg/errors"
	"github.com/spf13/cobra"
)

type DBType string

const (
	DBTypeBoltDB     DBType = "boltdb"
	DBTypePebble     DBType = "pebble"
	DBTypeRedis      DBType = "redis"
	DBTypeSQLite3    DBType = "sqlite3"
	DBTypeMySQL      DBType = "mysql"
	DBTypePostgreSQL DBType = "postgres"
)

var dbTypes = []DBType{DBTypeBoltDB, DBTypePebble, DBTypeRedis, DBTypeSQLite3, DBTypeMySQL, DBTypePostgreSQL}

func (t *DBType) String() string {
	return string(*t)
}

func (t *DBType) Set(v string) error {
	switch DBType(v) {
	case DBTypeBoltDB, DBTypePebble, DBTypeRedis, DBTypeSQLite3, DBTypeMySQL, DBTypePostgreSQL:
		*t = DBType(v)
		return nil
	default:
		return errors.Errorf("unexpected dbtype. accepts: %q, actual: %q", dbTypes, v)
	}
}

func (t *DBType) Type() string {
	return "DBType"
}

func DBTypeCompletion(cmd *cobra.Command, args []string, toComplete string) ([]string, cobra.ShellCompDirective) {
	ss := make([]string, 0, len(dbTypes))
	for _, t := range dbTypes {
		ss = append(ss, string(t))
	}
	return ss, cobra.ShellCompDirectiveDefault
}

// AddDBFlags registers the db connection flags shared by every command that
// opens the intermediate db.
func AddDBFlags(cmd *cobra.Command, dbtype *DBType, dbpath *string) {
	cmd.Flags().VarP(dbtype, "dbtype", "", "exploitgpt db type (default: boltdb, accepts: [boltdb, pebble, redis, sqlite3, mysql, postgres])")
	_ = cmd.RegisterFlagCompletionFunc("dbtype", DBTypeCompletion)
	cmd.Flags().StringVarP(dbpath, "dbpath", "", *dbpath, "exploitgpt db path (file path, redis address or dsn)")
}

// Debug reports the value of the persistent --debug flag.
func Debug(cmd *cobra.Command) bool {
	debug, err := cmd.Flags().GetBool("debug")
	if err != nil {
		return false
	}
	return debug
}
