// Package buildbot provides an HTTP client for the Buildbot JSON status API.
//
// # Overview
//
// The package is split into three parts:
//
//   - client.go: the connection manager (endpoint, transport, retries, session cookie)
//   - build.go: the build status parser producing BuildRecord values
//   - errors.go: the error types returned to callers
//
// # Client Usage
//
//	client, err := buildbot.NewClient("http://localhost:8010")
//	if err != nil {
//		log.Fatalf("bad endpoint: %v", err)
//	}
//
//	names, err := client.ListBuilders(ctx)
//	build, err := client.LastBuild(ctx, names[0])
//	ok, err := client.Login(ctx, "user", "password")
//	err = client.TriggerBuild(ctx, names[0])
//
// # Endpoints
//
//   - GET /json/builders: builder name to builder state
//   - GET /json/builders/{name}/builds/{number}: one build (negative numbers count back)
//   - POST /login: form login, answers with a session cookie on success
//   - POST /builders/{name}/force: force scheduler
//
// # Retries
//
// Every call goes through Client.Request. A try fails when the transport
// returns an error or the status is outside [200, 400). Redirects are not
// followed. After a failed try the client sleeps for a fixed delay (1s by
// default), builds a fresh transport and tries again, up to MaxAttempts tries
// in total (2 by default). There is no backoff. The delay and the transport
// constructor are injectable so tests can count reconnects without sleeping.
//
// # Errors
//
//   - *ConfigurationError: the base URL is not http:// or https://
//   - ErrNotConnected: a request was made before any endpoint was set
//   - *RequestFailedError: the retry budget was spent; carries method, path and cause
//   - *MalformedResponseError: a build document lacks a required field
//
// A refused login is not an error: Login returns false.
//
// # Concurrency
//
// A Client holds mutable session state and no lock. Share it between
// goroutines only behind external serialization.
package buildbot
