// internal/browser/scripts_test.go
package browser

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/xkilldash9x/testlab/internal/driver"
)

func TestQueryScript(t *testing.T) {
	t.Run("CSSStrategiesBecomeSelectors", func(t *testing.T) {
		assert.Contains(t, queryScript(driver.CSS("tbody tr")), `querySelectorAll("tbody tr")`)
		assert.Contains(t, queryScript(driver.ID("main")), `querySelectorAll("[id=\"main\"]")`)
		assert.Contains(t, queryScript(driver.TagName("thead")), `querySelectorAll("thead")`)
	})

	t.Run("XPathUsesEvaluate", func(t *testing.T) {
		script := queryScript(driver.XPath(`//td[text()="Bo"]`))
		assert.Contains(t, script, `evaluate("//td[text()=\"Bo\"]", root`)
		assert.NotContains(t, script, "querySelectorAll")
	})

	t.Run("GuardsAgainstDetachedReceivers", func(t *testing.T) {
		assert.Contains(t, queryScript(driver.CSS("a")), "stale element reference")
	})
}

func TestAttributeScriptEscapesName(t *testing.T) {
	assert.Contains(t, attributeScript(`data-"x"`), `const name = "data-\"x\"";`)
}

func TestUserScript(t *testing.T) {
	a := &Node{searchRoot{id: "obj-a"}}
	b := &Node{searchRoot{id: "obj-b"}}

	decl, nodes := userScript("return arguments[0].id + arguments[2];", []interface{}{a, 42, b, "x"})

	assert.Equal(t, []*Node{a, b}, nodes)
	assert.Contains(t, decl, `const args = [arguments[0], 42, arguments[1], "x"];`)
	assert.Contains(t, decl, "return arguments[0].id + arguments[2];")
}
