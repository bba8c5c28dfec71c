package system

import (
	"bytes"
	_ "embed"
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/santhosh-tekuri/jsonschema/v6"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

//go:embed schema/system_config.schema.json
var schemaBytes []byte

var (
	compiledSchema *jsonschema.Schema
	compileOnce    sync.Once
	compileErr     error
	printer        = message.NewPrinter(language.English)
)

func configSchema() (*jsonschema.Schema, error) {
	compileOnce.Do(func() {
		doc, err := jsonschema.UnmarshalJSON(bytes.NewReader(schemaBytes))
		if err != nil {
			compileErr = fmt.Errorf("解析配置 schema 失败: %w", err)
			return
		}
		c := jsonschema.NewCompiler()
		if err := c.AddResource("system_config.schema.json", doc); err != nil {
			compileErr = fmt.Errorf("加载配置 schema 失败: %w", err)
			return
		}
		compiledSchema, compileErr = c.Compile("system_config.schema.json")
	})
	return compiledSchema, compileErr
}

// validateDocument 用内置 schema 校验 JSON 文档，返回逐条问题描述。
func validateDocument(jsonData []byte) ([]string, error) {
	schema, err := configSchema()
	if err != nil {
		return nil, err
	}
	inst, err := jsonschema.UnmarshalJSON(bytes.NewReader(jsonData))
	if err != nil {
		return nil, fmt.Errorf("解析配置文档失败: %w", err)
	}
	err = schema.Validate(inst)
	if err == nil {
		return nil, nil
	}
	ve, ok := err.(*jsonschema.ValidationError)
	if !ok {
		return nil, err
	}
	var issues []string
	collectIssues(ve, &issues)
	if len(issues) == 0 {
		issues = append(issues, ve.Error())
	}
	sort.Strings(issues)
	return issues, nil
}

func collectIssues(ve *jsonschema.ValidationError, issues *[]string) {
	if len(ve.Causes) > 0 {
		for _, cause := range ve.Causes {
			collectIssues(cause, issues)
		}
		return
	}
	path := "/" + strings.Join(ve.InstanceLocation, "/")
	msg := ve.Error()
	if ve.ErrorKind != nil {
		msg = ve.ErrorKind.LocalizedString(printer)
	}
	*issues = append(*issues, path+": "+msg)
}
