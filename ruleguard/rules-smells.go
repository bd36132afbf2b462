package gorules

import "github.com/quasilyte/go-ruleguard/dsl"

func smells(m dsl.Matcher) {
	// 1) Two consecutive guards with the same return can be merged with ||
	//      if a { return err }
	//      if b { return err }
	//    => if a || b { return err }
	m.Match(`if $c1 { return $ret }; if $c2 { return $ret }`).
		Report(`two consecutive guards return the same value; consider merging conditions with ||`).
		Suggest(`if $c1 || $c2 { return $ret }`)

	// Same shape with continue (inside loops)
	m.Match(`if $c1 { continue }; if $c2 { continue }`).
		Report(`two consecutive continues; consider merging conditions with ||`).
		Suggest(`if $c1 || $c2 { continue }`)

	// 2) Nested for-loops are not always wrong, but worth a second look
	m.Match(`for $*_ { for $*_ { $*_ } }`).
		Report(`nested for-loop; consider extracting inner loop logic or reducing algorithmic complexity`)
}

// errorsIs flags direct comparison against sentinel errors. Generation
// errors are copied by apperr.WithAction, so == misses them.
func errorsIs(m dsl.Matcher) {
	m.Match(`$err == $sentinel`, `$sentinel == $err`).
		Where(m["err"].Type.Is(`error`) && m["sentinel"].Text.Matches(`^(\w+\.)?Err[A-Z]\w*$`)).
		Report(`compare errors with errors.Is($err, $sentinel)`).
		Suggest(`errors.Is($err, $sentinel)`)

	m.Match(`$err != $sentinel`, `$sentinel != $err`).
		Where(m["err"].Type.Is(`error`) && m["sentinel"].Text.Matches(`^(\w+\.)?Err[A-Z]\w*$`)).
		Report(`compare errors with !errors.Is($err, $sentinel)`).
		Suggest(`!errors.Is($err, $sentinel)`)
}

// printLogging flags stdout printing outside package main; services log
// through internal/infra/logger.
func printLogging(m dsl.Matcher) {
	m.Match(`fmt.Println($*_)`, `fmt.Printf($*_)`, `fmt.Print($*_)`).
		Where(!m.File().PkgPath.Matches(`/cmd/`)).
		Report(`use the zap logger from internal/infra/logger instead of fmt.Print*`)
}
