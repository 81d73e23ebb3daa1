package main

// General API documentation for swaggo. Run `make swagger-gen` to generate docs.
//
// @title           runtimed API
// @version         1.0
// @description     HTTP API for managing local inference runtime and bridge server processes.
//
// @contact.name   runtimed maintainers
// @contact.url    https://github.com/your-org/runtimed
//
// @license.name   MIT
// @license.url    https://opensource.org/licenses/MIT
//
// @BasePath  /
//
// @schemes http
