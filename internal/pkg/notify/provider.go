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

package notify

import (
	"github.com/google/wire"
)

// ProviderSet provides notify layer related dependencies
var ProviderSet = wire.NewSet(ProvideNotifier)

// ProvideNotifier Telegram 通道由 settings 服务在加载后注入
func ProvideNotifier(conf Conf) *Notifier {
	n := NewNotifier(conf)
	return n
}
