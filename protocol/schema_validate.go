package protocol

import (
	"encoding/json"
	"errors"
	"fmt"
	"reflect"
	"strconv"

	"github.com/justinwongcn/garmin-mcp/pkg"
)

// VerifyAndUnmarshal 验证JSON数据并反序列化到目标结构体
// [重要] 核心验证逻辑，确保数据符合schema定义
// 处理流程:
// 1. 检查空内容
// 2. 验证目标类型是否为结构体或指针
// 3. 从缓存获取schema进行验证
// 4. 调用底层验证和反序列化函数
func VerifyAndUnmarshal(content json.RawMessage, v any) error {
	if len(content) == 0 {
		return fmt.Errorf("request arguments is empty")
	}

	t := reflect.TypeOf(v)
	for t.Kind() != reflect.Struct {
		if t.Kind() != reflect.Ptr {
			return fmt.Errorf("invalid type %v, plz use func `pkg.JSONUnmarshal` instead", t)
		}
		t = t.Elem()
	}

	typeUID := getTypeUUID(t)
	schema, ok := schemaCache.Load(typeUID)
	if !ok {
		return fmt.Errorf("schema has not been generated，unable to verify: plz use func `pkg.JSONUnmarshal` instead")
	}

	return verifySchemaAndUnmarshal(Property{
		Type:       ObjectT,
		Properties: schema.Properties,
		Required:   schema.Required,
	}, content, v)
}

// verifySchemaAndUnmarshal 执行实际的schema验证和反序列化
// [性能提示] 先验证后反序列化，避免无效数据的处理开销
func verifySchemaAndUnmarshal(schema Property, content []byte, v any) error {
	var data any
	err := pkg.JSONUnmarshal(content, &data)
	if err != nil {
		return err
	}
	if !validate(schema, data) {
		return errors.New("data validation failed against the provided schema")
	}
	return pkg.JSONUnmarshal(content, &v)
}

// validate 根据schema验证数据
// [算法说明] 递归验证所有数据类型和嵌套结构
func validate(schema Property, data any) bool {
	switch schema.Type {
	case ObjectT:
		return validateObject(schema, data)
	case Array:
		return validateArray(schema, data)
	case String:
		str, ok := data.(string)
		if !ok {
			return false
		}
		return matchEnum(schema.Enum, func(enumValue string) bool {
			return str == enumValue
		})
	case Number:
		num, ok := data.(float64)
		if !ok {
			return false
		}
		return matchNumericEnum(num, schema.Enum)
	case Boolean:
		_, ok := data.(bool)
		return ok
	case Integer:
		// Golang unmarshals all numbers as float64, so we need to check if the float64 is an integer
		num, ok := data.(float64)
		if !ok || num != float64(int64(num)) {
			return false
		}
		return matchNumericEnum(num, schema.Enum)
	case Null:
		return data == nil
	default:
		return false
	}
}

// validateObject 验证对象类型数据
// [注意] 处理必填字段检查和属性递归验证
func validateObject(schema Property, data any) bool {
	dataMap, ok := data.(map[string]any)
	if !ok {
		return false
	}
	for _, field := range schema.Required {
		if _, exists := dataMap[field]; !exists {
			return false
		}
	}
	for key, valueSchema := range schema.Properties {
		value, exists := dataMap[key]
		if exists && !validate(*valueSchema, value) {
			return false
		}
	}
	return true
}

// validateArray 验证数组类型数据
// [注意] 递归验证数组每个元素
func validateArray(schema Property, data any) bool {
	dataArray, ok := data.([]any)
	if !ok {
		return false
	}
	for _, item := range dataArray {
		if !validate(*schema.Items, item) {
			return false
		}
	}
	return true
}

// matchEnum 验证枚举值，空枚举列表视为通过
func matchEnum(enum []string, equal func(string) bool) bool {
	if len(enum) == 0 {
		return true
	}
	for _, enumValue := range enum {
		if equal(enumValue) {
			return true
		}
	}
	return false
}

// matchNumericEnum 验证数值枚举，枚举值按float64解析后比较
func matchNumericEnum(value float64, enum []string) bool {
	return matchEnum(enum, func(enumValue string) bool {
		enumNum, err := strconv.ParseFloat(enumValue, 64)
		return err == nil && value == enumNum
	})
}
