// Package submit decides where rendered forms send their values.
//
// In post mode forms target the flow action and the browser talks to the
// identity API directly. In async mode the page script posts to
// /api/flows/{kind}/{id}; Async maps the values onto the method's update body,
// calls the identity API, records the session on success and answers with
// JSON, or with an RFC 7807 problem carrying the re-rendered form when the
// submission is rejected.
package submit
