package regression

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBuiltinModules(t *testing.T) {
	modules, err := BuiltinModules()
	require.NoError(t, err)
	assert.Contains(t, modules, "sale")
	assert.Contains(t, modules, "purchase")
	assert.Contains(t, modules, "stock")
	assert.Contains(t, modules, "account")
	assert.Contains(t, modules, "crm")
}

func TestBuiltin(t *testing.T) {
	templates, err := Builtin("sale")
	require.NoError(t, err)
	require.NotEmpty(t, templates)
	for _, tpl := range templates {
		assert.Equal(t, "sale", tpl.Module)
		assert.NotEmpty(t, tpl.Name)
		assert.NotEmpty(t, tpl.RobotCode)
		assert.Contains(t, tpl.RobotCode, "*** Test Cases ***")
	}

	// 无模板的模块返回空切片而非错误
	none, err := Builtin("does_not_exist")
	require.NoError(t, err)
	assert.Empty(t, none)
}

func TestModuleAlias(t *testing.T) {
	assert.Equal(t, "sale", ModuleAlias("sale_management"))
	assert.Equal(t, "purchase", ModuleAlias("purchase_stock"))
	assert.Equal(t, "account", ModuleAlias("account_accountant"))
	// 未登记的名字原样返回
	assert.Equal(t, "mrp", ModuleAlias("mrp"))
}

func TestInstantiate(t *testing.T) {
	code := "Login As ${USERNAME}\nOpen ${CUSTOMER_NAME} Dashboard ${ERP_VERSION}"
	out := Instantiate(code, map[string]string{
		"CUSTOMER_NAME": "Acme GmbH",
		"ERP_VERSION":   "16.0",
	})

	assert.Contains(t, out, "Acme GmbH")
	assert.Contains(t, out, "16.0")
	// 未提供的占位符保留
	assert.Contains(t, out, "${USERNAME}")

	assert.Equal(t, code, Instantiate(code, nil))
}
