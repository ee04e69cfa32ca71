// Copyright 2025 Arcade Team
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//      http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package http

var (
	Failed                        = failed(500, "Request failed")
	RequestParameterParsingFailed = failed(5001, "Request parameter parsing failed")

	// Unauthorized 401 api key
	Unauthorized     = failed(4401, "Unauthorized")
	NoAPIKey         = failed(4409, "Missing API key")
	InvalidAPIKey    = failed(4410, "Invalid API key")
	TimestampExpired = failed(4411, "Request timestamp expired")

	// BadRequest 400
	BadRequest = failed(4000, "Bad request")
	NotFound   = failed(4004, "Not found")
	Conflict   = failed(4009, "Resource already exists")

	InternalError = failed(5000, "Internal error, please contact the administrator")

	// vendor
	VendorNotConfigured = failed(4601, "OVH API credentials are not configured")
	VendorRequestFailed = failed(4602, "OVH API request failed")
	InvalidStatusChange = failed(4603, "Invalid status transition")
	IntervalTooShort    = failed(4604, "Check interval must be at least 60 seconds")
)

var (
	Success = success(200, "Request Success")
)

// failed 构造函数
func failed(code int, msg string) *Response {
	return &Response{
		Code:   code,
		Msg:    msg,
		Detail: nil,
	}
}

// success 构造函数
func success(code int, msg string) *Response {
	return &Response{
		Code:   code,
		Msg:    msg,
		Detail: nil,
	}
}
