// internal/browser/scripts.go
package browser

import (
	"fmt"
	"strings"

	jsoniter "github.com/json-iterator/go"

	"github.com/xkilldash9x/testlab/internal/driver"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// jsonEncode renders v as a JS literal.
func jsonEncode(v interface{}) string {
	b, err := json.Marshal(v)
	if err != nil {
		return `""`
	}
	return string(b)
}

// staleGuard throws when the receiver was detached from its document.
const staleGuard = `if (this.nodeType !== 9 && this.nodeType !== 11 && !this.isConnected) { throw new Error("stale element reference"); }`

// queryScript builds a function, called on a document, element or shadow
// root, that returns the locator's matches as an array in document order.
func queryScript(loc driver.Locator) string {
	if loc.By == driver.ByXPath {
		return fmt.Sprintf(`function() {
	%s
	const root = this;
	const doc = root.ownerDocument || root;
	const snap = doc.evaluate(%s, root, null, XPathResult.ORDERED_NODE_SNAPSHOT_TYPE, null);
	const out = [];
	for (let i = 0; i < snap.snapshotLength; i++) { out.push(snap.snapshotItem(i)); }
	return out;
}`, staleGuard, jsonEncode(loc.Value))
	}

	sel, err := loc.CSSSelector()
	if err != nil {
		// Unreachable for non-XPath strategies; keep the script valid.
		sel = loc.Value
	}
	return fmt.Sprintf(`function() {
	%s
	return Array.from(this.querySelectorAll(%s));
}`, staleGuard, jsonEncode(sel))
}

// itemScript returns element i of the receiving array.
func itemScript(i int) string {
	return fmt.Sprintf(`function() { return this[%d]; }`, i)
}

const lengthScript = `function() { return this.length; }`

// nodeScript wraps body in a function with the stale guard applied.
func nodeScript(body string) string {
	return "function() {\n\t" + staleGuard + "\n\t" + body + "\n}"
}

var (
	textScript = nodeScript(`const t = this.innerText !== undefined ? this.innerText : this.textContent;
	return (t || "").trim();`)

	enabledScript = nodeScript(`return !this.disabled;`)

	displayedScript = nodeScript(`const r = this.getBoundingClientRect();
	const s = window.getComputedStyle(this);
	return r.width > 0 && r.height > 0 && s.display !== "none" && s.visibility !== "hidden" && s.opacity !== "0";`)

	editableScript = nodeScript(`if (this.disabled || this.readOnly) { throw new Error("invalid element state: element is not editable"); }
	this.focus();
	return true;`)

	clearScript = nodeScript(`if (this.disabled || this.readOnly) { throw new Error("invalid element state: element is not editable"); }
	if ("value" in this) { this.value = ""; } else if (this.isContentEditable) { this.textContent = ""; }
	this.dispatchEvent(new Event("input", { bubbles: true }));
	this.dispatchEvent(new Event("change", { bubbles: true }));
	return true;`)

	// centerScript scrolls the node into view and returns its center and
	// box in viewport coordinates plus the scroll offset.
	centerScript = nodeScript(`this.scrollIntoView({ block: "center", inline: "center" });
	const r = this.getBoundingClientRect();
	return { x: r.left + r.width / 2, y: r.top + r.height / 2, left: r.left, top: r.top, width: r.width, height: r.height, scrollX: window.scrollX, scrollY: window.scrollY };`)

	shadowRootScript = nodeScript(`return this.shadowRoot;`)
)

// attributeScript reads a DOM property when it is a primitive, the HTML
// attribute otherwise. It returns null when neither exists.
func attributeScript(name string) string {
	return nodeScript(fmt.Sprintf(`const name = %s;
	const v = this[name];
	if (v !== undefined && v !== null && typeof v !== "object" && typeof v !== "function") { return String(v); }
	const a = this.getAttribute(name);
	return a === null ? null : a;`, jsonEncode(name)))
}

// userScript wraps a script body written against arguments[i]. Node
// arguments are passed by object id and referenced positionally; every other
// argument is inlined as a JSON literal. It returns the function
// declaration and the ordered node arguments.
func userScript(script string, args []interface{}) (string, []*Node) {
	var nodes []*Node
	refs := make([]string, 0, len(args))
	for _, arg := range args {
		if n, ok := arg.(*Node); ok {
			refs = append(refs, fmt.Sprintf("arguments[%d]", len(nodes)))
			nodes = append(nodes, n)
			continue
		}
		refs = append(refs, jsonEncode(arg))
	}
	return fmt.Sprintf(`function() {
	const args = [%s];
	return (function() {
%s
	}).apply(window, args);
}`, strings.Join(refs, ", "), script), nodes
}
