// MIT License
//
// Copyright (c) 2020 codingfinest
//
// Permission is hereby granted, free of charge, to any person obtaining a copy
// of this software and associated documentation files (the "Software"), to deal
// in the Software without restriction, including without limitation the rights
// to use, copy, modify, merge, publish, distribute, sublicense, and/or sell
// copies of the Software, and to permit persons to whom the Software is
// furnished to do so, subject to the following conditions:
//
// The above copyright notice and this permission notice shall be included in all
// copies or substantial portions of the Software.
//
// THE SOFTWARE IS PROVIDED "AS IS", WITHOUT WARRANTY OF ANY KIND, EXPRESS OR
// IMPLIED, INCLUDING BUT NOT LIMITED TO THE WARRANTIES OF MERCHANTABILITY,
// FITNESS FOR A PARTICULAR PURPOSE AND NONINFRINGEMENT. IN NO EVENT SHALL THE
// AUTHORS OR COPYRIGHT HOLDERS BE LIABLE FOR ANY CLAIM, DAMAGES OR OTHER
// LIABILITY, WHETHER IN AN ACTION OF CONTRACT, TORT OR OTHERWISE, ARISING FROM,
// OUT OF OR IN CONNECTION WITH THE SOFTWARE OR THE USE OR OTHER DEALINGS IN THE
// SOFTWARE.

package gogm

//Typed forms of the session operations. Each T is a registered domain struct.

func LoadGeneric[T any](session *SessionImpl, object **T, ID any, loadOptions *LoadOptions) error {
	return session.Load(object, ID, loadOptions)
}

func LoadAllGeneric[T any](session *SessionImpl, objects *[]*T, IDs []int64, loadOptions *LoadOptions) error {
	if IDs == nil {
		return session.LoadAll(objects, nil, loadOptions)
	}
	return session.LoadAll(objects, IDs, loadOptions)
}

func SaveGeneric[T any](session *SessionImpl, object *T, saveOptions *SaveOptions) error {
	return session.Save(object, saveOptions)
}
