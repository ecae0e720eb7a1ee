package analyzer

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sampleModelSource = `# -*- coding: utf-8 -*-
from odoo import models, fields, api
from odoo.exceptions import ValidationError


class SaleSubscription(models.Model):
    _name = 'sale.subscription'
    _description = 'Subscription'

    name = fields.Char(string='Name', required=True)
    partner_id = fields.Many2one('res.partner', string='Customer', required=True)
    start_date = fields.Date(string='Start Date', required=True)
    amount = fields.Float(string='Amount')
    note = fields.Text(readonly=True)
    state = fields.Selection([
        ('draft', 'Draft'),
        ('active', 'Active'),
        ('closed', 'Closed'),
    ], default='draft')
    total = fields.Float(compute='_compute_total', string='Total')

    _sql_constraints = [
        ('name_unique', 'unique(name)', 'Subscription name must be unique!'),
    ]

    @api.constrains('amount')
    def _check_amount(self):
        """Amount must stay positive"""
        for record in self:
            if record.amount < 0:
                raise ValidationError('Amount cannot be negative')

    @api.onchange('partner_id')
    def _onchange_partner(self):
        self.note = self.partner_id.comment

    def action_activate(self):
        """Activate the subscription"""
        self.state = 'active'

    def write(self, vals):
        return super().write(vals)
`

const sampleViewSource = `<?xml version="1.0" encoding="utf-8"?>
<odoo>
    <record id="view_subscription_form" model="ir.ui.view">
        <field name="model">sale.subscription</field>
        <field name="arch" type="xml">
            <form>
                <header>
                    <button name="action_activate" string="Activate" type="object" states="draft"/>
                    <button name="action_close" string="Close" type="object"/>
                    <field name="state" widget="statusbar" statusbar_visible="draft,active,closed"/>
                </header>
                <group>
                    <field name="name" required="1"/>
                    <field name="partner_id"/>
                    <field name="start_date"/>
                </group>
            </form>
        </field>
    </record>
</odoo>
`

func writeSampleModule(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(dir, "models"), 0o755))
	require.NoError(t, os.MkdirAll(filepath.Join(dir, "views"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "models", "subscription.py"), []byte(sampleModelSource), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "views", "subscription_views.xml"), []byte(sampleViewSource), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "__manifest__.py"), []byte(`{
    'name': 'Sale Subscription',
    'version': '1.2.0',
    'depends': ['base', 'sale'],
}`), 0o644))
	return dir
}

func TestAnalyzeModuleFacts(t *testing.T) {
	dir := writeSampleModule(t)

	facts, err := AnalyzeModule(dir, "sale_subscription")
	require.NoError(t, err)
	require.Len(t, facts.Models, 1)

	model := facts.Models[0]
	assert.Equal(t, "sale.subscription", model.Name)
	assert.Equal(t, "Subscription", model.Description)

	// 必填字段: name, partner_id, start_date
	required := model.RequiredFields()
	names := make([]string, 0, len(required))
	for _, f := range required {
		names = append(names, f.Name)
	}
	assert.Equal(t, []string{"name", "partner_id", "start_date"}, names)

	// 约束: 1条SQL + 1条代码约束
	require.Len(t, model.Constraints, 2)
	assert.Equal(t, "sql", model.Constraints[0].Kind)
	assert.Equal(t, "name_unique", model.Constraints[0].Name)
	assert.Equal(t, "code", model.Constraints[1].Kind)
	assert.Equal(t, []string{"amount"}, model.Constraints[1].Fields)
	assert.Equal(t, "Amount cannot be negative", model.Constraints[1].Message)

	// 关系与选择字段
	var partner, state FieldFact
	for _, f := range model.Fields {
		switch f.Name {
		case "partner_id":
			partner = f
		case "state":
			state = f
		}
	}
	assert.Equal(t, "res.partner", partner.Relation)
	assert.Equal(t, []string{"draft", "active", "closed"}, state.Selection)

	// 工作流
	require.Len(t, model.Workflows, 1)
	assert.Equal(t, []string{"draft", "active", "closed"}, model.Workflows[0].States)

	// 生命周期钩子
	assert.Equal(t, []string{"write"}, model.LifecycleHooks)
}

func TestAnalyzeModuleMergesViewFacts(t *testing.T) {
	dir := writeSampleModule(t)

	facts, err := AnalyzeModule(dir, "sale_subscription")
	require.NoError(t, err)
	require.Len(t, facts.Views, 1)

	view := facts.Views[0]
	assert.Contains(t, view.RequiredFields, "name")
	require.Len(t, view.Buttons, 2)
	assert.Equal(t, "action_activate", view.Buttons[0].Name)
	assert.Equal(t, "draft", view.Buttons[0].States)
	assert.Equal(t, "sale.subscription", view.Buttons[0].Model)

	// 视图按钮 action_close 在源码中不存在, 合并后作为动作方法补录
	model := facts.Models[0]
	assert.True(t, hasMethod(&model, "action_close"))

	// 状态栏工作流
	require.NotEmpty(t, view.Workflows)
	assert.Equal(t, []string{"draft", "active", "closed"}, view.Workflows[0].States)
}

func TestAnalyzeModuleDeterministic(t *testing.T) {
	dir := writeSampleModule(t)

	first, err := AnalyzeModule(dir, "sale_subscription")
	require.NoError(t, err)
	second, err := AnalyzeModule(dir, "sale_subscription")
	require.NoError(t, err)

	assert.Equal(t, first, second)
}

func TestParseModelSourceMalformedFieldIsWarning(t *testing.T) {
	source := `class Broken(models.Model):
    _name = 'qa.broken'

    partner_id = fields.Many2one(comodel)
    name = fields.Char(required=True)
`
	models, warnings := ParseModelSource(source, "broken.py")
	require.Len(t, models, 1)
	// 解析失败只产生告警, 不中断其余字段
	assert.NotEmpty(t, warnings)
	assert.Len(t, models[0].Fields, 2)
	assert.True(t, models[0].Fields[1].Required)
}

func TestParseViewMarkupTolerant(t *testing.T) {
	broken := `<form><group><field name="code" required="1"><button string="No Name"/></group>`
	facts, warnings := ParseViewMarkup(broken, "broken.xml")

	assert.Contains(t, facts.Fields, "code")
	assert.Contains(t, facts.RequiredFields, "code")
	assert.NotEmpty(t, warnings) // 无name按钮记录告警
}

func TestDiscoverModules(t *testing.T) {
	repo := t.TempDir()
	for _, name := range []string{"crm_ext", "account_ext"} {
		dir := filepath.Join(repo, name)
		require.NoError(t, os.MkdirAll(filepath.Join(dir, "models"), 0o755))
		require.NoError(t, os.WriteFile(filepath.Join(dir, "__manifest__.py"),
			[]byte(`{'name': 'X', 'version': '1.0', 'depends': ['base']}`), 0o644))
		require.NoError(t, os.WriteFile(filepath.Join(dir, "models", "m.py"), []byte(""), 0o644))
	}

	modules, err := DiscoverModules(repo)
	require.NoError(t, err)
	require.Len(t, modules, 2)
	// 结果按模块名排序
	assert.Equal(t, "account_ext", modules[0].Name)
	assert.Equal(t, "crm_ext", modules[1].Name)
	assert.Equal(t, []string{"base"}, modules[0].Depends)
	assert.Equal(t, 1, modules[0].ModelCount)
}
