// Package sanitizer removes script-executing constructs from untrusted HTML
// and CSS using an allow-list Policy.
//
// A Policy lists the allowed tags, the allowed attributes per tag (or for
// every tag via WildcardTag), the allowed CSS properties, an input length
// limit and a set of blocked patterns. It is validated once by NewPolicy and
// is immutable afterwards, so sanitization is a pure function of the input
// and the policy.
//
// # Passes
//
// Sanitizer.Sanitize runs the input through these passes:
//
//  1. Pre-check. Input longer than the policy limit fails with
//     ErrContentTooLarge. Blocked patterns found in the raw input are only
//     logged.
//  2. Structural filtering by an HTMLFilter. StructuralFilter parses the
//     input with golang.org/x/net/html and re-serializes the allowed part of
//     the tree; RegexFilter is a regex-only fallback selected with
//     WithStrategy(StrategyRegex).
//  3. Attribute values. URL attributes and values containing url(...) must
//     be http(s) or base64 data:image URLs, otherwise the attribute is
//     dropped. Values matching a blocked pattern are dropped.
//  4. Embedded CSS. style attributes and <style> elements go through the
//     CSS filter; an empty result drops the attribute or element.
//  5. Final sweep. Blocked patterns still present in the output are
//     removed.
//
// When the filter fails, all markup is stripped with bluemonday's strict
// policy before the final sweep. Dropped tags, attributes, declarations and
// rules are logged one record each with the message "sanitizer: dropped".
//
// # Usage
//
//	s := sanitizer.New(sanitizer.DefaultPolicy(), sanitizer.WithLogger(log))
//	clean, err := s.Sanitize(ctx, `<p onclick="x()">Hello</p><script>alert(1)</script>`)
//	// clean == "<p>Hello</p>"
//	if errors.Is(err, sanitizer.ErrContentTooLarge) {
//	    // reject the request
//	}
//
// CSS can be filtered on its own:
//
//	sanitizer.FilterCSS("color: red; behavior: url(evil.htc);", policy) // "color: red"
//
// Policies can be loaded from YAML with LoadPolicyFile; keys missing from
// the file keep their DefaultPolicyConfig values.
package sanitizer
