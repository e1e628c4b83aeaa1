// Package validator confirms that stored credentials can still read
// friends lists.
//
// A Validator walks a short list of probe ids read from a local file and
// fetches each one's friends list. The first probe that returns friends
// proves the session works; its friend ids are saved in the session record
// as the login check. Responses mentioning rate-limit keywords are reported
// as blocked so the caller can suggest waiting instead of logging in again.
// When no probe file exists the check is skipped and the session is
// treated as usable.
package validator
