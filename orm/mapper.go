package orm

import (
	"io"
	"time"

	"github.com/startdusk/pagehelper/internal/errs"
	"gopkg.in/yaml.v3"
)

// mapperFile 对应 YAML 格式的语句文件:
//
//	namespace: users
//	statements:
//	  - id: list
//	    sql: SELECT id, name FROM users WHERE active = #{active}
//	    resultType: map
//	    timeout: 3s
type mapperFile struct {
	Namespace  string            `yaml:"namespace"`
	Statements []statementConfig `yaml:"statements"`
}

type statementConfig struct {
	ID            string        `yaml:"id"`
	SQL           string        `yaml:"sql"`
	ResultType    string        `yaml:"resultType"`
	Timeout       time.Duration `yaml:"timeout"`
	FetchSize     int           `yaml:"fetchSize"`
	KeyProperties []string      `yaml:"keyProperties"`
	UseCache      bool          `yaml:"useCache"`
	FlushCache    bool          `yaml:"flushCache"`
}

// LoadMapper 读取 YAML 语句文件并注册, 有 namespace 时 id 为 namespace.id
func (c *Configuration) LoadMapper(r io.Reader) error {
	var file mapperFile
	if err := yaml.NewDecoder(r).Decode(&file); err != nil {
		return err
	}
	for _, sc := range file.Statements {
		st, err := c.buildStatement(file.Namespace, sc)
		if err != nil {
			return err
		}
		if err = c.AddStatement(st); err != nil {
			return err
		}
	}
	return nil
}

func (c *Configuration) buildStatement(namespace string, sc statementConfig) (*Statement, error) {
	if sc.SQL == "" {
		return nil, errs.ErrNilSQLSource
	}
	id := sc.ID
	if namespace != "" {
		id = namespace + "." + id
	}
	var mapper ResultMapper
	if sc.ResultType != "" {
		m, ok := c.ResultMapper(sc.ResultType)
		if !ok {
			return nil, errs.NewErrUnknownResultType(sc.ResultType)
		}
		mapper = m
	}
	return &Statement{
		ID:            id,
		SQLSource:     NewNamedSQL(sc.SQL),
		Timeout:       sc.Timeout,
		FetchSize:     sc.FetchSize,
		KeyProperties: sc.KeyProperties,
		ResultMapper:  mapper,
		UseCache:      sc.UseCache,
		FlushCache:    sc.FlushCache,
	}, nil
}
